// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/panda/mutexdenovo"

func main() {
	mutexdenovo.Main()
}
