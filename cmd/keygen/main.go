// Command keygen prints a new ENCRYPTION_KEY value.
package main

import (
	"fmt"
	"log"

	"voice_motto/internal/common/security"
)

func main() {
	key, err := security.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	fmt.Println(key)
}
