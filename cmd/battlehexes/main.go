// Command battlehexes serves a turn-based hex battle to a browser client and
// plays CPU turns against a remote resolver.
package main

func main() {
	Execute()
}
