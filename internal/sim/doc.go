// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package sim provides the harness for the concurrency scenarios in the
// package tests: a worker runner with per-goroutine random number
// generators, a sequential oracle for the minimum-increment workload, and a
// reference list model for state-machine property tests.
package sim
