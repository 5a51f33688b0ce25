package main

import "github.com/frahmantamala/recurrent-payments/cmd"

func main() {
	cmd.Execute()
}
