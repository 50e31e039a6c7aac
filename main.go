package main

import (
	"bytes"
	"fmt"

	"github.com/quietcore/microshrink/microshrink"
)

func main() {
	str := "Hello world."
	for i := 0; i < 13; i++ {
		str += str
	}
	in := []byte(str)

	out, err := microshrink.Compress(8, 4, in)
	if err != nil {
		fmt.Println("compress error:", err)
		return
	}
	fmt.Printf("Compress: %v -> %v\n", len(in), len(out))

	back, err := microshrink.Decompress(8, 4, microshrink.DefaultInputBufferSize, out)
	if err != nil {
		fmt.Println("decompress error:", err)
		return
	}
	fmt.Printf("Decompress: %v -> %v Equal: %v\n", len(out), len(back), bytes.Equal(in, back))
}
