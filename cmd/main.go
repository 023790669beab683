// cmd/main.go
package main

import (
	"vidtube-api/app"
)

// @title           VidTube API
// @version         1.0
// @description     Accounts, sessions and channel views of the VidTube video platform.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
