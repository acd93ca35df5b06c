package main

import "github.com/JonMunkholm/eda/internal/cli"

func main() {
	cli.Execute()
}
