package calculator

// DefaultRSIPeriod is the conventional Wilder lookback window.
const DefaultRSIPeriod = 14

// RSI computes the Wilder-smoothed Relative Strength Index over the given
// period from an ordered series of closing prices (oldest first).
//
// It requires at least period+1 closes; with fewer the reading is
// unavailable (ok == false). That is an expected outcome for newly listed
// or thinly traded assets, not an error. When the average loss is exactly
// zero (uninterrupted rally or a flat series) the RSI is 100 by definition,
// which also guards the division.
func RSI(closes []float64, period int) (rsi float64, ok bool) {
	if period < 1 || len(closes) < period+1 {
		return 0, false
	}

	// Seed average gain/loss with the simple mean of the first `period` deltas.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change // make positive
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing for the remaining deltas.
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, true
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), true
}
