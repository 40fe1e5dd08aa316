// Package blockchain holds small Ethereum helpers shared by the other
// packages: private key parsing and conversions between wei and larger
// units.
//
// Amounts are converted with shopspring/decimal, so no precision is lost
// through floating point:
//
//	wei, err := blockchain.EtherToWei("0.25")
//	floor, err := blockchain.GweiToWei("1.5")
//	fmt.Println(blockchain.WeiToGwei(price)) // "1.2"
package blockchain
