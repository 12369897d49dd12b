// Command gradecheck resolves restaurant inspection grades from the terminal.
package main

func main() {
	Execute()
}
