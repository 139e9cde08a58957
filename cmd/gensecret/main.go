// Command gensecret prints a freshly generated 32-byte HS256 signing
// secret, hex encoded, suitable for TokenConfig.Secret.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const secretKeyBytes = 32

func main() {
	b := make([]byte, secretKeyBytes)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating secret key: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
