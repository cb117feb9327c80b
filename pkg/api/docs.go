// Package api provides the status and control HTTP surface of ChainDemux
// @title ChainDemux API
// @version 1.0
// @description Status and control API of a running ChainDemux watcher
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/ChainDemux
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /
// @schemes http https
package api
