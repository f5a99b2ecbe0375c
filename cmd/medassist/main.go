// Command medassist runs the medical assistant chat as an HTTP API or an
// interactive terminal session.
package main

func main() {
	Execute()
}
