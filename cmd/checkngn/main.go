// Command checkngn normalizes the actions of rule definitions.
package main

import "github.com/checkngn/checkngn/cmd/checkngn/cmd"

func main() {
	cmd.Execute()
}
