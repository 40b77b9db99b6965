// Command cs4teachers runs the cs4teachers events site.
package main

import (
	_ "time/tzdata"

	"github.com/uccser/cs4teachers/cmd/cs4teachers/cmd"
)

func main() {
	cmd.Execute()
}
