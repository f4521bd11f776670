package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Brandscout API
// @version 0.1
// @description Scrapes agency websites for logos, fonts and contact details.
// @contact.name Brandscout Maintainers
// @contact.url https://github.com/raysh454/brandscout
// @BasePath /
