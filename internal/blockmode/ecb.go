package blockmode

import "crypto/cipher"

type ecb struct {
	b         cipher.Block
	blockSize int
	decrypt   bool
}

func newECBEncrypter(b cipher.Block) cipher.BlockMode {
	return &ecb{b: b, blockSize: b.BlockSize()}
}

func newECBDecrypter(b cipher.Block) cipher.BlockMode {
	return &ecb{b: b, blockSize: b.BlockSize(), decrypt: true}
}

func (x *ecb) BlockSize() int { return x.blockSize }

func (x *ecb) CryptBlocks(dst, src []byte) {
	if len(src)%x.blockSize != 0 {
		panic("blockmode: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("blockmode: output smaller than input")
	}
	for len(src) > 0 {
		if x.decrypt {
			x.b.Decrypt(dst[:x.blockSize], src[:x.blockSize])
		} else {
			x.b.Encrypt(dst[:x.blockSize], src[:x.blockSize])
		}
		src = src[x.blockSize:]
		dst = dst[x.blockSize:]
	}
}
