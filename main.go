// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/overmatch/overmatch/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
