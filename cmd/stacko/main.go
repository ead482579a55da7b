// Command stacko is the entrypoint for the image/stackpoint manager's
// thin command facade.
package main

import "github.com/wagoodman/stacko/cmd/internal/cli"

func main() {
	cli.Execute()
}
