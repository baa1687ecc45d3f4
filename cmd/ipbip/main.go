// Command ipbip translates a pseudo-Boolean OPB formula and its VeriPB
// proof into the annotated IPBIP intermediate proof format.
package main

import "github.com/rebryant/ipbip/pkg/cmd"

func main() {
	cmd.Execute()
}
