// Package cipher exposes every cipherkit transform as a named operation that
// can be listed, chained into pipelines and saved as recipes.
//
// # Operations
//
// Operations register themselves at init time and are looked up by name:
//
//	op, _ := cipher.GetOperation("aes_encrypt")
//	out, err := op.Execute(ctx, []byte("some data"), map[string]interface{}{
//	    "key":        "secret password!",
//	    "key_format": "utf8",
//	    "mode":       "ECB",
//	})
//
// Parameters arrive as a map so that JSON request bodies and recipe files can
// be passed through unchanged. Key-like parameters ("key", "iv", "nonce",
// "tag", "secret", "signature") are decoded with a companion "<name>_format"
// parameter: hex, base64, utf8, latin1, raw, utf16le or utf16be. Errors are
// *cryptoerr.Error values naming the offending parameter.
//
// # Pipelines
//
//	p := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "rotate", Parameters: map[string]interface{}{"amount": 3}},
//	        {Name: "base64_encode"},
//	    },
//	    Reversible: true,
//	}
//	encoded, _ := p.Execute(ctx, []byte("hello"))
//	back, _ := p.Reverse()
//	plain, _ := back.Execute(ctx, encoded)
//
// Reverse walks the steps backwards. Operations such as rotate are their own
// inverse with rewritten parameters (amount becomes -amount).
//
// # Available operations
//
// Encodings: base64, base64url, hex, binary (each _encode/_decode).
//
// Classical: rotate, rot13, rot47, rot8000, rotate_bruteforce,
// rot47_bruteforce, vigenere_encode/decode, affine_encode/decode, atbash,
// substitution, to_morse/from_morse.
//
// XOR: xor, xor_bruteforce.
//
// Symmetric: aes, des, 3des, blowfish, rc4, chacha (each _encrypt/_decrypt).
//
// JWT: jwt_decode, jwt_verify, jwt_sign, jwt_none, jwt_embedded_jwk,
// jwt_bruteforce.
//
// RSA: rsa_encrypt/decrypt, rsa_sign/verify, rsa_pem_to_jwk, rsa_pem_from_jwk.
//
// # Thread Safety
//
// The operation registry and RecipeManager lock internally. Operations hold
// no state and are safe for concurrent use.
package cipher
