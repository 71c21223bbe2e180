// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/hd2mm/hd2mm/cmd/hd2mm"

func main() {
	cmd.Execute()
}
