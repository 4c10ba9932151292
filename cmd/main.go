package main

import "todobackend/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.SetupStorage()
	defer app.CloseStorage()

	app.SetupEvents()
	defer app.CloseEvents()

	app.MustListenAndServeHTTP()
}
