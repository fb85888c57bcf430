package main

import "github.com/jcdickinson/showroom/cmd"

func main() {
	cmd.Execute()
}
