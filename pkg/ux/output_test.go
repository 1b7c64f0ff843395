// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture switches to the given level, redirects output and restores both
// when the test ends.
func capture(t *testing.T, level PersonalityLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut := SetOutput(&buf)
	prevLevel := GetPersonalityLevel()
	SetPersonalityLevel(level)
	t.Cleanup(func() {
		SetOutput(prevOut)
		SetPersonalityLevel(prevLevel)
	})
	return &buf
}

func TestCommand_Machine(t *testing.T) {
	buf := capture(t, PersonalityMachine)

	Command("ssh -i id cms@10.0.0.2 'screen -list'")

	assert.Equal(t, "$ ssh -i id cms@10.0.0.2 'screen -list'\n", buf.String())
}

func TestCommand_Full(t *testing.T) {
	buf := capture(t, PersonalityFull)

	Command("screen -list")

	assert.Contains(t, buf.String(), "$")
	assert.Contains(t, buf.String(), "screen -list")
}

func TestMessages_Machine(t *testing.T) {
	buf := capture(t, PersonalityMachine)

	Success("done")
	Warning("careful")
	Error("broken")
	Info("fyi")
	Host("worker0", "10.0.0.2")
	Summary(2, 1, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"OK: done",
		"WARN: careful",
		"ERROR: broken",
		"fyi",
		"# worker0 10.0.0.2",
		"SUMMARY: succeeded=2 failed=1 total=3",
	}, lines)
}

func TestMessages_Minimal(t *testing.T) {
	buf := capture(t, PersonalityMinimal)

	Success("copied")
	Error("failed")

	assert.Contains(t, buf.String(), string(IconSuccess))
	assert.Contains(t, buf.String(), "copied")
	assert.Contains(t, buf.String(), string(IconError))
}

func TestBox_Machine(t *testing.T) {
	buf := capture(t, PersonalityMachine)

	Box("render-conf", "written to cms.toml")

	assert.Equal(t, "render-conf: written to cms.toml\n", buf.String())
}

func TestParsePersonalityLevel(t *testing.T) {
	assert.Equal(t, PersonalityMachine, ParsePersonalityLevel("quiet"))
	assert.Equal(t, PersonalityMachine, ParsePersonalityLevel("PLAIN"))
	assert.Equal(t, PersonalityMinimal, ParsePersonalityLevel("min"))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("standard"))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("whatever"))
}

func TestInitPersonality_Env(t *testing.T) {
	prev := GetPersonalityLevel()
	t.Cleanup(func() { SetPersonalityLevel(prev) })

	t.Setenv("CMSFLEET_PERSONALITY", "minimal")
	InitPersonality()

	assert.Equal(t, PersonalityMinimal, GetPersonalityLevel())
}

func TestTable_Machine(t *testing.T) {
	buf := capture(t, PersonalityMachine)

	Table([]string{"NAME", "ADDRESS"}, [][]string{{"main", "10.0.0.1"}, {"worker0", "10.0.0.2"}})

	assert.Equal(t, "NAME\tADDRESS\nmain\t10.0.0.1\nworker0\t10.0.0.2\n", buf.String())
}

func TestTable_Full(t *testing.T) {
	buf := capture(t, PersonalityFull)

	Table([]string{"NAME", "ADDRESS"}, [][]string{{"main", "10.0.0.1"}})

	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "10.0.0.1")
}
