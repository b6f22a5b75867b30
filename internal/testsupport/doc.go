// Package testsupport provides shared constructors for package tests: unique
// per-test configurations and an in-memory coordination client.
package testsupport
