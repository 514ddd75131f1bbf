package main

import "github.com/LittleGragon/coffee-shop-sub000/cmd"

func main() {
	cmd.Execute()
}
