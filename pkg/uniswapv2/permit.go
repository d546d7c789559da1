package uniswapv2

import (
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	permitTypeHash = crypto.Keccak256Hash([]byte("Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)"))
	versionHash    = crypto.Keccak256Hash([]byte("1"))
)

// DomainSeparator returns the EIP-712 domain separator of a permit-capable
// token.
func DomainSeparator(name string, chainID *big.Int, verifyingContract common.Address) common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(name)),
		versionHash.Bytes(),
		common.BigToHash(chainID).Bytes(),
		common.LeftPadBytes(verifyingContract.Bytes(), 32),
	)
}

// ApprovalDigest is the message an owner signs to grant spender an
// allowance of value without an approve call.
func ApprovalDigest(domain common.Hash, owner, spender common.Address, value *big.Int, nonce uint64, deadline time.Time) common.Hash {
	structHash := crypto.Keccak256(
		permitTypeHash.Bytes(),
		common.LeftPadBytes(owner.Bytes(), 32),
		common.LeftPadBytes(spender.Bytes(), 32),
		common.BigToHash(value).Bytes(),
		common.BigToHash(new(big.Int).SetUint64(nonce)).Bytes(),
		common.BigToHash(big.NewInt(deadline.Unix())).Bytes(),
	)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domain.Bytes(), structHash)
}

// SignApproval signs digest with key and returns a 65-byte [R || S || V]
// signature.
func SignApproval(key *ecdsa.PrivateKey, digest common.Hash) ([]byte, error) {
	return crypto.Sign(digest.Bytes(), key)
}

// RecoverApprover returns the address that produced sig over digest. Both
// 0/1 and 27/28 recovery ids are accepted.
func RecoverApprover(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}
