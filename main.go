// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/blocklaunch/blocklaunch/cmd/blocklaunch"

func main() {
	cmd.Execute()
}
