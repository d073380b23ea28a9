// Package config provides configuration structures and utilities for phetcrawl.
// It defines the target languages and categories, worker limits, state
// directory layout, and report preferences, all read once at process start.
package config
