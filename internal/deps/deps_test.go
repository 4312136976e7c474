package deps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/internal/parser"
	"github.com/QTest-hq/codescope/pkg/model"
)

func extract(t *testing.T, lang model.Language, path, src string) *Result {
	t.Helper()
	res, err := lexer.Scan(context.Background(), src, lang)
	require.NoError(t, err)
	pr, err := parser.Extract(context.Background(), res, lang)
	require.NoError(t, err)
	return Extract(res, pr.Declarations, model.NewSourceFile(path, src, lang))
}

func modules(edges []model.DependencyEdge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.ToModule)
	}
	return out
}

func TestExtract_Imports(t *testing.T) {
	tests := []struct {
		name string
		lang model.Language
		src  string
		want []string
	}{
		{
			name: "python",
			lang: model.LanguagePython,
			src: "import os, sys as system\n" +
				"import a.b.c\n" +
				"from collections.abc import Mapping\n" +
				"from . import views\n" +
				"from ..pkg.mod import (a,\n    b)\n" +
				"\ndef gen():\n    yield from other()\n",
			want: []string{"os", "sys", "a.b.c", "collections.abc", ".", "..pkg.mod"},
		},
		{
			name: "javascript",
			lang: model.LanguageJavaScript,
			src: "import React from 'react';\n" +
				"import { a, b } from \"./util\";\n" +
				"import './side.css';\n" +
				"const fs = require('fs');\n" +
				"export * from './reexport';\n" +
				"const lazy = () => import('./lazy');\n",
			want: []string{"react", "./util", "./side.css", "fs", "./reexport", "./lazy"},
		},
		{
			name: "java",
			lang: model.LanguageJava,
			src:  "package com.example;\n\nimport java.util.List;\nimport static org.junit.Assert.*;\n\nclass A {}\n",
			want: []string{"java.util.List", "org.junit.Assert.*"},
		},
		{
			name: "go",
			lang: model.LanguageGo,
			src:  "package main\n\nimport \"fmt\"\n\nimport (\n\tm \"math\"\n\t_ \"embed\"\n)\n",
			want: []string{"fmt", "math", "embed"},
		},
		{
			name: "c",
			lang: model.LanguageC,
			src:  "#include <stdio.h>\n#include \"util.h\"\n\nint main(void) { return 0; }\n",
			want: []string{"stdio.h", "util.h"},
		},
		{
			name: "rust",
			lang: model.LanguageRust,
			src:  "use std::collections::HashMap;\nuse crate::{a, b};\nextern crate serde;\n",
			want: []string{"std::collections::HashMap", "crate::{a,b}", "serde"},
		},
		{
			name: "php",
			lang: model.LanguagePHP,
			src: "<?php\n" +
				`use App\Models\User;` + "\n" +
				"require_once 'config.php';\n" +
				"$f = function () use ($x) { return $x; };\n",
			want: []string{`App\Models\User`, "config.php"},
		},
		{
			name: "ruby",
			lang: model.LanguageRuby,
			src:  "require 'json'\nrequire_relative 'lib/helper'\nload('tasks.rb')\n",
			want: []string{"json", "lib/helper", "tasks.rb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := extract(t, tt.lang, "src/file", tt.src)
			assert.Equal(t, tt.want, modules(r.Imports))
			for _, e := range r.Imports {
				assert.Equal(t, model.EdgeImport, e.Kind)
				assert.Equal(t, "src/file", e.FromFile)
				assert.Positive(t, e.Line)
				assert.False(t, e.Heuristic)
			}
		})
	}
}

func TestExtract_PythonCalls(t *testing.T) {
	src := `import os

def helper(x):
    return os.path.join(x, "a")

class Greeter:
    def greet(self):
        print(helper(1))
        self.log("hi")

helper(2)
`
	r := extract(t, model.LanguagePython, "app.py", src)

	type call struct {
		line     int
		caller   string
		callee   string
		receiver string
	}
	var got []call
	for _, e := range r.Calls {
		assert.Equal(t, model.EdgeCall, e.Kind)
		assert.True(t, e.Heuristic)
		got = append(got, call{e.Line, e.CallerID, e.CalleeName, e.ToModule})
	}

	assert.Equal(t, []call{
		{4, "3:helper", "os.path.join", "os.path"},
		{8, "7:Greeter.greet", "print", ""},
		{8, "7:Greeter.greet", "helper", ""},
		{9, "7:Greeter.greet", "self.log", "self"},
		{11, ModuleCaller, "helper", ""},
	}, got)
}

func TestExtract_ScriptCallsSkipKeywords(t *testing.T) {
	src := `function run(a) {
  if (a) { go(a); }
  while (a) {}
  return new Foo(a);
}
`
	r := extract(t, model.LanguageJavaScript, "run.js", src)

	var callees []string
	for _, e := range r.Calls {
		assert.Equal(t, "1:run", e.CallerID)
		callees = append(callees, e.CalleeName)
	}
	assert.Equal(t, []string{"go", "Foo"}, callees)
}

func TestExtract_JavaAnnotationsAreNotCalls(t *testing.T) {
	src := `class A {
  @Override
  public String toString() {
    return String.valueOf(1);
  }

  @SuppressWarnings("unchecked")
  void f() { g(); }
}
`
	r := extract(t, model.LanguageJava, "A.java", src)

	var callees []string
	for _, e := range r.Calls {
		callees = append(callees, e.CalleeName)
	}
	assert.Equal(t, []string{"String.valueOf", "g"}, callees)
	require.Len(t, r.Calls, 2)
	assert.Equal(t, "8:A.f", r.Calls[1].CallerID)
}

func TestExtract_GoReceiverChain(t *testing.T) {
	src := `package main

import "fmt"

func main() {
	fmt.Println(greet("x"))
}

func greet(name string) string { return name }
`
	r := extract(t, model.LanguageGo, "main.go", src)

	require.Len(t, r.Calls, 2)
	assert.Equal(t, "fmt.Println", r.Calls[0].CalleeName)
	assert.Equal(t, "fmt", r.Calls[0].ToModule)
	assert.Equal(t, "greet", r.Calls[1].CalleeName)
	assert.Equal(t, "5:main", r.Calls[1].CallerID)
}

func TestExtract_Endpoints(t *testing.T) {
	src := `const express = require('express');
const app = express();

app.get('/users/:id', getUser);

function getUser(req, res) {
  res.json({});
}
`
	r := extract(t, model.LanguageJavaScript, "server.js", src)

	require.Len(t, r.Endpoints, 1)
	ep := r.Endpoints[0]
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, "/users/:id", ep.Path)
	assert.Equal(t, "getUser", ep.Handler)
	assert.Equal(t, "server.js", ep.File)
	assert.Equal(t, model.SourceCode, ep.Source)
	require.Len(t, ep.Parameters, 1)
	assert.Equal(t, model.LocationPath, ep.Parameters[0].Location)
}

func TestExtract_Unsupported(t *testing.T) {
	r := Extract(&lexer.Result{}, nil, model.NewSourceFile("x.txt", "hello", model.LanguageUnknown))
	assert.NotNil(t, r.Imports)
	assert.NotNil(t, r.Calls)
	assert.NotNil(t, r.Endpoints)
	assert.Empty(t, r.Calls)

	r = Extract(nil, nil, model.NewSourceFile("a.py", "", model.LanguagePython))
	assert.Empty(t, r.Imports)
}

func TestModuleNames(t *testing.T) {
	edges := []model.DependencyEdge{
		{ToModule: "os", Kind: model.EdgeImport},
		{ToModule: "sys", Kind: model.EdgeImport},
		{ToModule: "os", Kind: model.EdgeImport},
		{ToModule: "self", Kind: model.EdgeCall},
	}
	assert.Equal(t, []string{"os", "sys"}, ModuleNames(edges))
	assert.Empty(t, ModuleNames(nil))
}
