package anomaly

import (
	"math"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/stats"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

// relaxFactor lowers the z threshold when a volume surge corroborates
// the move.
const relaxFactor = 0.85

// Options controls a detection pass.
type Options struct {
	RollingWindow     int     // relative-return window
	VolumeWindow      int     // trailing volume average window
	ZThreshold        float64 // |z| significance bar
	VolumeSpikeRatio  float64 // spike ratio that relaxes the bar
	ClusterRadiusDays int     // chain distance for cluster merging
	Timeframe         string  // tag carried onto anomalies
}

// DefaultOptions returns detector defaults for daily bars.
func DefaultOptions() Options {
	return Options{
		RollingWindow:     60,
		VolumeWindow:      20,
		ZThreshold:        2.0,
		VolumeSpikeRatio:  2.0,
		ClusterRadiusDays: 2,
		Timeframe:         "daily",
	}
}

func (o *Options) normalize() {
	def := DefaultOptions()
	if o.RollingWindow <= 0 {
		o.RollingWindow = def.RollingWindow
	}
	if o.VolumeWindow <= 0 {
		o.VolumeWindow = def.VolumeWindow
	}
	if o.ZThreshold <= 0 {
		o.ZThreshold = def.ZThreshold
	}
	if o.VolumeSpikeRatio <= 0 {
		o.VolumeSpikeRatio = def.VolumeSpikeRatio
	}
	if o.ClusterRadiusDays <= 0 {
		o.ClusterRadiusDays = def.ClusterRadiusDays
	}
	if o.Timeframe == "" {
		o.Timeframe = def.Timeframe
	}
}

// Detect aligns the two series by date, flags dates whose benchmark-relative
// return is statistically significant, and collapses adjacent flags into a
// single anomaly per cluster. Pure: identical inputs produce identical output.
func Detect(security, benchmark []models.Bar, opts Options) []models.PriceAnomaly {
	opts.normalize()

	aligned := models.AlignByDate(security, benchmark)
	if len(aligned) <= opts.RollingWindow {
		return []models.PriceAnomaly{}
	}

	secCloses := make([]float64, len(aligned))
	benchCloses := make([]float64, len(aligned))
	volumes := make([]float64, len(aligned))
	for i, ab := range aligned {
		secCloses[i] = ab.Security.Close
		benchCloses[i] = ab.Benchmark.Close
		volumes[i] = ab.Security.Volume
	}

	secRets := stats.Returns(secCloses)
	benchRets := stats.Returns(benchCloses)
	relRets := make([]float64, len(aligned))
	for i := range relRets {
		relRets[i] = secRets[i] - benchRets[i]
	}

	means := stats.RollingMean(relRets, opts.RollingWindow)
	stddevs := stats.RollingStdDev(relRets, opts.RollingWindow)

	flagged := make([]models.PriceAnomaly, 0)
	for i := range aligned {
		z := stats.ZScore(relRets[i], means[i], stddevs[i])
		spike := volumeSpike(volumes, i, opts.VolumeWindow)

		threshold := opts.ZThreshold
		if spike >= opts.VolumeSpikeRatio {
			threshold *= relaxFactor
		}
		if math.Abs(z) < threshold {
			continue
		}

		flagged = append(flagged, models.PriceAnomaly{
			Date:            aligned[i].Date,
			Timeframe:       opts.Timeframe,
			SecurityReturn:  secRets[i],
			BenchmarkReturn: benchRets[i],
			RelativeReturn:  relRets[i],
			ZScore:          z,
			VolumeSpike:     spike,
			Close:           aligned[i].Security.Close,
			Volume:          aligned[i].Security.Volume,
		})
	}

	return cluster(flagged, opts.ClusterRadiusDays)
}

// volumeSpike is current volume over the trailing average of the prior
// `window` bars. Undefined until a full prior window exists.
func volumeSpike(volumes []float64, i, window int) float64 {
	if i < window {
		return 0
	}
	sum := 0.0
	for j := i - window; j < i; j++ {
		sum += volumes[j]
	}
	avg := sum / float64(window)
	if avg <= 0 {
		return 0
	}
	return volumes[i] / avg
}

// cluster groups flags whose chain distance to the previous flag in the
// forming cluster is within radius days, then keeps only the highest-|z|
// anomaly per cluster. A long drift of adjacent flags therefore collapses
// into one event even when the cluster spans more than radius days
// end-to-end.
func cluster(flags []models.PriceAnomaly, radiusDays int) []models.PriceAnomaly {
	if len(flags) == 0 {
		return []models.PriceAnomaly{}
	}

	out := make([]models.PriceAnomaly, 0, len(flags))
	best := flags[0]
	prev := flags[0]
	for _, f := range flags[1:] {
		if util.DaysBetween(prev.Date, f.Date) <= radiusDays {
			if math.Abs(f.ZScore) > math.Abs(best.ZScore) {
				best = f
			}
			prev = f
			continue
		}
		out = append(out, best)
		best = f
		prev = f
	}
	out = append(out, best)
	return out
}
