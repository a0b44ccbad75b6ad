package main

import "showdown/bot"

func main() {
	bot.Start()
}
