package trace

import (
	"fmt"
	"os"
)

const (
	runInfoSectionVersion    uint32 = 1
	seriesDataSectionVersion uint32 = 1
)

// WriteFile writes a complete trace for a finished run.
//
// The run-info document is written first, then every series in order. The
// resulting file carries FlagRunComplete.
func WriteFile(path string, info *RunInfo, series []Series) error {
	infoPayload, err := EncodeRunInfo(info)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w, err := NewWriter(f)
	if err != nil {
		return err
	}
	if err := w.WriteSection(SectionRunInfo, runInfoSectionVersion, infoPayload); err != nil {
		return err
	}

	if len(series) > 0 {
		sw, err := w.BeginSection(SectionSeriesData, seriesDataSectionVersion)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(series))
		for i := range series {
			if _, ok := seen[series[i].Name]; ok {
				return fmt.Errorf("trace: duplicate series %q", series[i].Name)
			}
			seen[series[i].Name] = struct{}{}
			if err := WriteSeries(sw, series[i]); err != nil {
				return err
			}
		}
		if err := sw.End(); err != nil {
			return err
		}
	}

	if err := w.AddFlags(FlagRunComplete); err != nil {
		return err
	}
	if err := w.Finalise(); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile opens a trace and decodes its run info and series.
// The returned data is copied out of the file, so no mapping is retained.
func ReadFile(path string) (*RunInfo, []Series, error) {
	f, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	infoSec := f.Section(SectionRunInfo)
	if infoSec == nil {
		return nil, nil, fmt.Errorf("%w: missing run info section", ErrCorruptFile)
	}
	if infoSec.Version != runInfoSectionVersion {
		return nil, nil, fmt.Errorf("trace: unsupported run info version %d", infoSec.Version)
	}
	info, err := ParseRunInfo(f.SectionData(infoSec))
	if err != nil {
		return nil, nil, err
	}

	var series []Series
	if sec := f.Section(SectionSeriesData); sec != nil {
		if sec.Version != seriesDataSectionVersion {
			return nil, nil, fmt.Errorf("trace: unsupported series data version %d", sec.Version)
		}
		series, err = DecodeSeriesData(f.SectionData(sec))
		if err != nil {
			return nil, nil, err
		}
	}
	return info, series, nil
}
