package main

import "github.com/mselser95/market-dashboard/cmd"

func main() {
	cmd.Execute()
}
