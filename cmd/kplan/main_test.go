package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

const validPlan = `
settings = {
  "kplan.maxContainers" = 2
}

operator "numbers" {
  type  = "generator"
  count = 10
}

operator "print" {
  type = "console.int64"
}

stream "numbers" {
  source = "numbers.out"
  sinks  = ["print.in"]
}
`

const cyclicPlan = `
operator "a" {
  type = "passthrough"
}

operator "b" {
  type = "passthrough"
}

stream "ab" {
  source = "a.out"
  sinks  = ["b.in"]
}

stream "ba" {
  source = "b.out"
  sinks  = ["a.in"]
}
`

func writePlan(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("KPLAN_STORE", "file")
	t.Setenv("KPLAN_STORE_DIR", filepath.Join(t.TempDir(), "store"))

	dir := t.TempDir()
	valid := writePlan(t, dir, "numbers.hcl", validPlan)
	cyclic := writePlan(t, dir, "cyclic.hcl", cyclicPlan)

	t.Run("validate", func(t *testing.T) {
		out, err := run(t, "validate", valid)
		assert.NoError(t, err)
		assert.Contains(t, out, "OK")
		assert.Contains(t, out, "numbers.hcl")
	})

	t.Run("validate reports every file", func(t *testing.T) {
		out, err := run(t, "validate", valid, cyclic)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2")
		assert.Contains(t, out, "FAIL")
		assert.Contains(t, out, "cyclic.hcl")
	})

	t.Run("describe", func(t *testing.T) {
		out, err := run(t, "describe", valid)
		assert.NoError(t, err)
		assert.Contains(t, out, "kplan.maxContainers = 2")
		assert.Contains(t, out, "numbers: numbers.out -> [print.in] codec=kserde.int64")
		assert.Contains(t, out, "Roots numbers")
	})

	t.Run("save and list", func(t *testing.T) {
		out, err := run(t, "save", valid)
		assert.NoError(t, err)
		assert.Contains(t, out, "saved numbers revision")

		out, err = run(t, "save", "--name", "other", valid)
		assert.NoError(t, err)
		assert.Contains(t, out, "saved other revision")

		out, err = run(t, "list")
		assert.NoError(t, err)
		assert.Contains(t, out, "numbers\t")
		assert.Contains(t, out, "other\t")
	})

	t.Run("save rejects invalid plans", func(t *testing.T) {
		_, err := run(t, "save", cyclic)
		assert.Error(t, err)

		out, err := run(t, "list")
		assert.NoError(t, err)
		assert.NotContains(t, out, "cyclic")
	})

	t.Run("bad config", func(t *testing.T) {
		t.Setenv("KPLAN_STORE", "tape")
		_, err := run(t, "list")
		assert.Error(t, err)
	})
}

func TestPlanName(t *testing.T) {
	assert.Equal(t, "orders", planName("/plans/orders.hcl"))
	assert.Equal(t, "orders", planName("orders"))
}
