package main

import "github.com/readur/syncguard/internal/cli"

func main() {
	cli.Execute()
}
