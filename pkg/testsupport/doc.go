// Package testsupport holds fixture builders and assertions shared by the
// package tests: positional table builders, xlsx encode/decode helpers and
// uniqueness checks over merged sheets.
package testsupport
