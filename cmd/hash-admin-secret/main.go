package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"planora-ticketing/internal/utils"
)

// Reads a secret from the first argument or stdin and prints an argon2id hash
// suitable for ADMIN_SECRET_HASHES.
func main() {
	var secret string
	if len(os.Args) > 1 {
		secret = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "Admin secret: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatal("Failed to read secret:", err)
		}
		secret = line
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		log.Fatal("Secret must not be empty")
	}

	hash, err := utils.HashSecret(secret)
	if err != nil {
		log.Fatal("Failed to hash secret:", err)
	}

	fmt.Println(hash)
	fmt.Fprintln(os.Stderr, "Add this value to ADMIN_SECRET_HASHES (whitespace separates multiple hashes).")
}
