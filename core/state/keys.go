package state

var (
	accountPrefix = []byte("account/")
	lenderPrefix  = []byte("lender/")
	loanPrefix    = []byte("loan/")
	banPrefix     = []byte("ban/")
	policyKey     = []byte("policy")
	poolKey       = []byte("pool")
)

func prefixedKey(prefix []byte, addr [20]byte) []byte {
	key := make([]byte, 0, len(prefix)+len(addr))
	key = append(key, prefix...)
	key = append(key, addr[:]...)
	return key
}

func accountKey(addr [20]byte) []byte { return prefixedKey(accountPrefix, addr) }
func lenderKey(addr [20]byte) []byte  { return prefixedKey(lenderPrefix, addr) }
func loanKey(addr [20]byte) []byte    { return prefixedKey(loanPrefix, addr) }
func banKey(addr [20]byte) []byte     { return prefixedKey(banPrefix, addr) }
