package scan

import "testing"

func mustPolicy(t *testing.T, name string) Scanner {
	t.Helper()
	s, err := ForPolicy(name)
	if err != nil {
		t.Fatalf("policy %s: %v", name, err)
	}
	return s
}

func TestShellEscapePolicy(t *testing.T) {
	t.Parallel()

	s := mustPolicy(t, PolicyShellEscape)
	if s.Allow(`#include <stdlib.h>
int main(){ system("rm -rf /"); }`) {
		t.Fatal("expected system call to be rejected")
	}
	if !s.Allow(`#include <stdio.h>
int main(){ int a,b; scanf("%d%d",&a,&b); printf("%d\n",a+b); }`) {
		t.Fatal("expected plain program to be allowed")
	}
}

func TestPythonImportPolicy(t *testing.T) {
	t.Parallel()

	s := mustPolicy(t, PolicyPythonImport)
	cases := []struct {
		name   string
		source string
		want   bool
	}{
		{name: "allowed module", source: "import math\nprint(math.pi)\n", want: true},
		{name: "denied module", source: "import os\nos.system('ls')\n", want: false},
		{name: "from import allowed", source: "from collections import deque\nfrom math import sqrt\n", want: false},
		{name: "from allowed module", source: "from math import sqrt\n", want: true},
		{name: "mixed line passes with one allowed token", source: "import sys, os\n", want: true},
		{name: "no imports", source: "a, b = input().split()\nprint(int(a)+int(b))\n", want: true},
		{name: "second import denied", source: "import sys\nimport subprocess\n", want: false},
		{name: "keyword in string literal", source: "print('import nothing')\n", want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Allow(tc.source); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGoPackagePolicy(t *testing.T) {
	t.Parallel()

	s := mustPolicy(t, PolicyGoPackage)
	if s.Allow("package main\nimport \"os\"\nfunc main(){ os.Exit(0) }\n") {
		t.Fatal("expected os import to be rejected")
	}
	if s.Allow("package main\nimport (\n\t\"fmt\"\n\t\"net\"\n)\n") {
		t.Fatal("expected net import to be rejected")
	}
	if !s.Allow("package main\nimport \"fmt\"\nfunc main(){ fmt.Println(1) }\n") {
		t.Fatal("expected fmt import to be allowed")
	}
	// Only exact quoted names are denied.
	if !s.Allow("package main\nimport \"net/http\"\n") {
		t.Fatal("expected net/http to pass the quoted name check")
	}
}

func TestAllowPolicyAndUnknown(t *testing.T) {
	t.Parallel()

	if !mustPolicy(t, PolicyAllow).Allow("anything goes; system(\"x\")") {
		t.Fatal("expected allow policy to accept")
	}
	if !mustPolicy(t, "").Allow("import os") {
		t.Fatal("expected empty policy to default to allow")
	}
	if _, err := ForPolicy("paranoid"); err == nil {
		t.Fatal("expected unknown policy error")
	}
}
