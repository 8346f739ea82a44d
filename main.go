// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/git-sparta/git-sparta/cmd/sparta"

func main() {
	cmd.Execute()
}
