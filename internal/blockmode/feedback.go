package blockmode

import (
	"crypto/cipher"
	"crypto/subtle"
)

// ofb keeps the keystream in one block: each refill encrypts the previous
// keystream block in place.
type ofb struct {
	b       cipher.Block
	block   []byte
	outUsed int
}

func newOFB(b cipher.Block, iv []byte) cipher.Stream {
	x := &ofb{b: b, block: make([]byte, b.BlockSize())}
	copy(x.block, iv)
	x.outUsed = len(x.block)
	return x
}

func (x *ofb) XORKeyStream(dst, src []byte) {
	for len(src) > 0 {
		if x.outUsed == len(x.block) {
			x.b.Encrypt(x.block, x.block)
			x.outUsed = 0
		}
		n := subtle.XORBytes(dst, src, x.block[x.outUsed:])
		dst = dst[n:]
		src = src[n:]
		x.outUsed += n
	}
}

// cfb feeds whole ciphertext blocks back into the cipher, so the segment
// size always equals the block size.
type cfb struct {
	b       cipher.Block
	next    []byte
	out     []byte
	outUsed int
	decrypt bool
}

func newCFB(b cipher.Block, iv []byte, decrypt bool) cipher.Stream {
	bs := b.BlockSize()
	x := &cfb{
		b:       b,
		next:    make([]byte, bs),
		out:     make([]byte, bs),
		outUsed: bs,
		decrypt: decrypt,
	}
	copy(x.next, iv)
	return x
}

func (x *cfb) XORKeyStream(dst, src []byte) {
	for len(src) > 0 {
		if x.outUsed == len(x.out) {
			x.b.Encrypt(x.out, x.next)
			x.outUsed = 0
		}
		if x.decrypt {
			copy(x.next[x.outUsed:], src)
		}
		n := subtle.XORBytes(dst, src, x.out[x.outUsed:])
		if !x.decrypt {
			copy(x.next[x.outUsed:], dst[:n])
		}
		dst = dst[n:]
		src = src[n:]
		x.outUsed += n
	}
}
