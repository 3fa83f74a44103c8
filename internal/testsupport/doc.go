// Package testsupport provides shared fixtures for package tests: temp-dir
// configs, store lifecycle helpers, and post factories.
package testsupport
