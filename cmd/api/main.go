// @title Pawtastic API
// @version 1.0
// @description App shell local del core de Pawtastic: sesión, mascotas y reservas.
// @BasePath /
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
