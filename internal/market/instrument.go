package market

const logoPrefix = "https://raw.githubusercontent.com/Pymmdrza/Cryptocurrency_Logos/refs/heads/mainx/SVG"

// Instrument is a tradable symbol with its simulated quote.
type Instrument struct {
	Symbol    string  `json:"symbol" mapstructure:"symbol"`
	Name      string  `json:"name" mapstructure:"name"`
	Price     float64 `json:"price" mapstructure:"price"`
	Change24h float64 `json:"change_24h" mapstructure:"change_24h"`
	Image     string  `json:"image" mapstructure:"image"`
}

// Seeded reports whether the instrument has received its first price.
func (i Instrument) Seeded() bool {
	return i.Price > 0
}

// SeedRange is the half-open interval [Min, Min+Width) an initial price is drawn from.
type SeedRange struct {
	Min   float64
	Width float64
}

// DefaultSeedPrice is used for symbols without a seed range.
const DefaultSeedPrice = 100.0

var seedRanges = map[string]SeedRange{
	"BTC":  {Min: 65000, Width: 2000},
	"ETH":  {Min: 3500, Width: 200},
	"SOL":  {Min: 150, Width: 20},
	"BNB":  {Min: 600, Width: 30},
	"DOGE": {Min: 0.15, Width: 0.02},
}

// SeedRangeFor returns the seed range for a symbol.
func SeedRangeFor(symbol string) (SeedRange, bool) {
	r, ok := seedRanges[symbol]
	return r, ok
}

// DefaultInstruments returns the static instrument list. Prices start at zero
// and are seeded by the first tick.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{Symbol: "BTC", Name: "Bitcoin", Image: logoPrefix + "/btc.svg"},
		{Symbol: "ETH", Name: "Ethereum", Image: "https://www.citypng.com/public/uploads/preview/ethereum-eth-round-logo-icon-png-701751694969815akblwl2552.png"},
		{Symbol: "SOL", Name: "Solana", Image: logoPrefix + "/sol.svg"},
		{Symbol: "BNB", Name: "Binance Coin", Image: logoPrefix + "/bnb.svg"},
		{Symbol: "DOGE", Name: "Dogecoin", Image: logoPrefix + "/doge.svg"},
	}
}

// Find returns the instrument with the given symbol.
func Find(instruments []Instrument, symbol string) (Instrument, bool) {
	for _, inst := range instruments {
		if inst.Symbol == symbol {
			return inst, true
		}
	}
	return Instrument{}, false
}

// Clone returns a copy of the slice.
func Clone(instruments []Instrument) []Instrument {
	out := make([]Instrument, len(instruments))
	copy(out, instruments)
	return out
}
