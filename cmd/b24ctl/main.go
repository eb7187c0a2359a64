package main

import "github.com/pkravchenko/b24-dealsync/cmd/b24ctl/cmd"

func main() {
	cmd.Execute()
}
