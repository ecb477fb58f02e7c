package exports

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"activityrewards/core/ledger"
)

// parquetRow stores uint64 columns as decimal strings; parquet has no unsigned
// 64-bit physical type.
type parquetRow struct {
	Slot             string `parquet:"name=slot, type=BYTE_ARRAY, convertedtype=UTF8"`
	Owner            string `parquet:"name=owner, type=BYTE_ARRAY, convertedtype=UTF8"`
	Activity         string `parquet:"name=activity, type=BYTE_ARRAY, convertedtype=UTF8"`
	NumTasks         string `parquet:"name=num_tasks, type=BYTE_ARRAY, convertedtype=UTF8"`
	NumUsers         string `parquet:"name=num_users, type=BYTE_ARRAY, convertedtype=UTF8"`
	ConsecutiveCount int64  `parquet:"name=consecutive_count, type=INT64"`
	RewardAmount     string `parquet:"name=reward_amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	RewardUnits      string `parquet:"name=reward_units, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp        string `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// RewardsParquet builds a SNAPPY-compressed Parquet export and its checksum.
func RewardsParquet(entries []ledger.SlotEntry) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	fw := writerfile.NewWriterFile(buffer)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return nil, "", fmt.Errorf("exports: parquet schema: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range Rows(entries) {
		pr := &parquetRow{
			Slot:             row.Slot,
			Owner:            row.Owner,
			Activity:         row.Activity,
			NumTasks:         strconv.FormatUint(row.NumTasks, 10),
			NumUsers:         strconv.FormatUint(row.NumUsers, 10),
			ConsecutiveCount: int64(row.ConsecutiveCount),
			RewardAmount:     row.RewardAmount,
			RewardUnits:      strconv.FormatUint(row.RewardUnits, 10),
			Timestamp:        strconv.FormatUint(row.Timestamp, 10),
		}
		if err := pw.Write(pr); err != nil {
			return nil, "", fmt.Errorf("exports: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, "", fmt.Errorf("exports: parquet finalise: %w", err)
	}
	data := buffer.Bytes()
	return data, checksum(data), nil
}
