// Package rewards turns accumulated daily kitns into on-chain token
// transfers.
package rewards

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/apex/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const gasLimit = uint64(21000) // A plain value transfer.

func FromWei(src *big.Int) float32 {
	res, _ := decimal.NewFromBigInt(src, -18).Float64()
	return float32(res)
}

func ToWei(src float32) *big.Int {
	srcDec := decimal.NewFromFloat32(src)
	weiInt := big.NewInt(0).Mul(srcDec.Coefficient(), big.NewInt(0).Exp(big.NewInt(10), big.NewInt(int64(int32(18)+srcDec.Exponent())), nil))
	return weiInt
}

type Disburser struct {
	client      *ethclient.Client
	chainID     *big.Int
	privateKey  *ecdsa.PrivateKey
	fromAddress ethcommon.Address
}

func NewDisburser(ethNetworkUrl, privateKey string) (*Disburser, error) {
	d := &Disburser{}

	client, err := ethclient.Dial(ethNetworkUrl)
	if err != nil {
		return nil, fmt.Errorf("error creating ethclient with the network url %s: %w", ethNetworkUrl, err)
	}
	d.client = client

	chainID, err := client.NetworkID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting network ID: %w", err)
	}
	d.chainID = chainID

	if len(privateKey) == 0 {
		return nil, fmt.Errorf("the eth_private_key param isn't specified")
	}
	d.privateKey, err = crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("error converting private key: %w", err)
	}

	publicKey := d.privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error creating ECDSA public key from %v", publicKey)
	}
	d.fromAddress = crypto.PubkeyToAddress(*publicKeyECDSA)

	log.Infof("Disburser initialized, chain ID: %v, sender: %v", d.chainID, d.fromAddress)
	return d, nil
}

// Disburse sends the kitn amount to the receiver as a native transfer and
// waits for neither mining nor confirmation. Returns the transaction hash.
func (d *Disburser) Disburse(ctx context.Context, receiver ethcommon.Address, kitns int) (ethcommon.Hash, error) {
	nonce, err := d.client.PendingNonceAt(ctx, d.fromAddress)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("error getting pending nonce: %w", err)
	}
	gasPrice, err := d.client.SuggestGasPrice(ctx)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("error getting gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, receiver, ToWei(float32(kitns)), gasLimit, gasPrice, nil)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(d.chainID), d.privateKey)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("error signing the transaction: %w", err)
	}

	if err := d.client.SendTransaction(ctx, signedTx); err != nil {
		return ethcommon.Hash{}, fmt.Errorf("error sending the transaction: %w", err)
	}

	log.Infof("Sent %d kitns to %v in tx %v", kitns, receiver, signedTx.Hash())
	return signedTx.Hash(), nil
}
