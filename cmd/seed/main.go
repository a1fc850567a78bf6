package main

import (
	"encoding/csv"
	"energycast/internal/config"
	"energycast/internal/database"
	"energycast/internal/dataset"
	"energycast/internal/logging"
	"errors"
	"flag"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	regionsPath := flag.String("regions", "regions_seed.csv", "CSV of name,latitude,longitude")
	observationsPath := flag.String("observations", "", "CSV of timestamp,consumption[,temperature,humidity] to import")
	region := flag.String("region", "", "region the -observations file belongs to")
	syntheticHours := flag.Int("synthetic-hours", 0, "generate this many hours of history for regions without data")
	seed := flag.Uint64("seed", 1, "seed for synthetic history")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.FromEnv()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "./config.yaml"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	db, err := database.NewDB(config.GetDatabaseDSN(), config.GetPoolConfig())
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	inserted, skipped := 0, 0
	for _, r := range cfg.Regions {
		if insertRegion(db, logger, r.Name, r.Latitude, r.Longitude) {
			inserted++
		} else {
			skipped++
		}
	}

	if file, err := os.Open(*regionsPath); err == nil {
		n, s := seedRegionsCSV(db, logger, file)
		file.Close()
		inserted += n
		skipped += s
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Fatal("Failed to open regions CSV")
	}
	logger.WithFields(logrus.Fields{"inserted": inserted, "skipped": skipped}).Info("Regions seeded")

	if *observationsPath != "" {
		if *region == "" {
			logger.Fatal("-region is required with -observations")
		}
		if err := importObservations(db, *observationsPath, *region); err != nil {
			logger.WithError(err).Fatal("Failed to import observations")
		}
		logger.WithField("region", *region).Info("Observations imported")
	}

	if *syntheticHours > 0 {
		if err := seedSynthetic(db, logger, *syntheticHours, *seed); err != nil {
			logger.WithError(err).Fatal("Failed to seed synthetic history")
		}
	}

	logger.Info("Seed complete")
}

func insertRegion(db *database.DB, logger logrus.FieldLogger, name string, lat, lon float64) bool {
	err := db.InsertRegion(name, lat, lon)
	switch {
	case errors.Is(err, database.ErrDuplicateRegion):
		logger.WithField("region", name).Debug("Region already exists")
		return false
	case err != nil:
		logger.WithError(err).WithField("region", name).Warn("Failed to insert region")
		return false
	}
	return true
}

// seedRegionsCSV inserts name,latitude,longitude rows after a header row
func seedRegionsCSV(db *database.DB, logger logrus.FieldLogger, r io.Reader) (inserted, skipped int) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		logger.WithError(err).Warn("Failed to read regions CSV header")
		return 0, 0
	}
	logger.WithField("header", header).Debug("Regions CSV header")

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.WithError(err).Warn("Failed to read regions CSV record")
			skipped++
			continue
		}

		if len(record) < 3 {
			logger.WithField("record", record).Warn("Skipping invalid record")
			skipped++
			continue
		}

		latitude, latErr := strconv.ParseFloat(record[1], 64)
		longitude, lonErr := strconv.ParseFloat(record[2], 64)
		if latErr != nil || lonErr != nil {
			logger.WithField("record", record).Warn("Skipping record with invalid coordinates")
			skipped++
			continue
		}

		if insertRegion(db, logger, record[0], latitude, longitude) {
			inserted++
		} else {
			skipped++
		}
	}
	return inserted, skipped
}

func importObservations(db *database.DB, path, region string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	window, err := dataset.ReadCSV(file)
	if err != nil {
		return err
	}
	return db.StoreObservations(region, window)
}

func seedSynthetic(db *database.DB, logger logrus.FieldLogger, hours int, seed uint64) error {
	regions, err := db.GetAllRegions()
	if err != nil {
		return err
	}
	withData, err := db.GetRegionsWithData()
	if err != nil {
		return err
	}

	end := time.Now().UTC()
	for i, r := range regions {
		if withData[r.Name] {
			continue
		}
		window := dataset.NewGenerator(seed+uint64(i)).Window(end, hours)
		if err := db.StoreObservations(r.Name, window); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"region": r.Name, "hours": len(window)}).Info("Synthetic history stored")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
