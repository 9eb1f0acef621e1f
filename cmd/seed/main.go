package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/DearthMap/DM-Backend/internal/catalog"
	"github.com/DearthMap/DM-Backend/internal/db"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

// CLI flags
var (
	dsn     = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun  = flag.Bool("dry-run", false, "Print the plan only; no DB writes")
	confirm = flag.Bool("confirm", false, "Required to perform destructive replace")
	seed    = flag.Int64("seed", 42, "RNG seed for deterministic generation")
)

// Seeds five states with deliberate access patterns: urban CA/TX/NY counties
// well served, rural Mississippi and Montana in shortage. Re-runs replace
// everything, so repeated seeds produce identical data for a given -seed.

type countyRow struct {
	FIPS       string
	Name       string
	StateAbbr  string
	StateName  string
	StateFIPS  string
	Population int64
	Lat, Lon   float64
	AreaSqMi   float64
	Urban      bool
}

type zipRow struct {
	ZCTA       string
	CountyFIPS string
	StateAbbr  string
	Population int64
	Lat, Lon   float64
}

type providerRow struct {
	NPI       string
	Name      string
	Zip       string
	Lat, Lon  float64
	Specialty string
}

var counties = []countyRow{
	// California (06)
	{"06037", "Los Angeles", "CA", "California", "06", 10014009, 34.0522, -118.2437, 4058, true},
	{"06073", "San Diego", "CA", "California", "06", 3338330, 32.7157, -117.1611, 4204, true},
	{"06075", "San Francisco", "CA", "California", "06", 873965, 37.7749, -122.4194, 47, true},
	{"06067", "Sacramento", "CA", "California", "06", 1552058, 38.5816, -121.4944, 966, true},
	{"06029", "Kern", "CA", "California", "06", 900202, 35.3733, -118.7920, 8132, false},
	{"06019", "Fresno", "CA", "California", "06", 999101, 36.7378, -119.7871, 5958, false},
	{"06023", "Humboldt", "CA", "California", "06", 135558, 40.7450, -123.8695, 3573, false},
	{"06003", "Alpine", "CA", "California", "06", 1129, 38.5966, -119.8207, 739, false},
	{"06049", "Modoc", "CA", "California", "06", 8841, 41.5890, -120.7258, 3918, false},
	{"06105", "Trinity", "CA", "California", "06", 12285, 40.6531, -123.0978, 3179, false},

	// Texas (48)
	{"48201", "Harris", "TX", "Texas", "48", 4713325, 29.7604, -95.3698, 1729, true},
	{"48113", "Dallas", "TX", "Texas", "48", 2613539, 32.7767, -96.7970, 871, true},
	{"48029", "Bexar", "TX", "Texas", "48", 2003554, 29.4241, -98.4936, 1240, true},
	{"48453", "Travis", "TX", "Texas", "48", 1290188, 30.2672, -97.7431, 990, true},
	{"48141", "El Paso", "TX", "Texas", "48", 839238, 31.7619, -106.4850, 1013, true},
	{"48303", "Lubbock", "TX", "Texas", "48", 310569, 33.5779, -101.8552, 900, false},
	{"48043", "Brewster", "TX", "Texas", "48", 9232, 29.8106, -103.2534, 6193, false},
	{"48301", "Loving", "TX", "Texas", "48", 64, 31.8489, -103.9852, 669, false},
	{"48269", "King", "TX", "Texas", "48", 272, 33.6164, -100.2558, 913, false},
	{"48443", "Terrell", "TX", "Texas", "48", 862, 30.2250, -102.0759, 2358, false},

	// New York (36)
	{"36047", "Kings", "NY", "New York", "36", 2736074, 40.6782, -73.9442, 70, true},
	{"36061", "New York", "NY", "New York", "36", 1694251, 40.7831, -73.9712, 23, true},
	{"36081", "Queens", "NY", "New York", "36", 2405464, 40.7282, -73.7949, 109, true},
	{"36029", "Erie", "NY", "New York", "36", 954236, 42.7523, -78.7805, 1043, true},
	{"36055", "Monroe", "NY", "New York", "36", 759443, 43.2300, -77.6556, 659, true},
	{"36001", "Albany", "NY", "New York", "36", 314848, 42.6526, -73.7562, 523, false},
	{"36043", "Herkimer", "NY", "New York", "36", 61319, 43.4197, -74.9646, 1411, false},
	{"36041", "Hamilton", "NY", "New York", "36", 5107, 43.6611, -74.4970, 1721, false},
	{"36033", "Franklin", "NY", "New York", "36", 50692, 44.5953, -74.3034, 1632, false},
	{"36049", "Lewis", "NY", "New York", "36", 26719, 43.7844, -75.4489, 1276, false},

	// Mississippi (28)
	{"28049", "Hinds", "MS", "Mississippi", "28", 245285, 32.2988, -90.1848, 870, true},
	{"28047", "Harrison", "MS", "Mississippi", "28", 208080, 30.4090, -89.0930, 576, true},
	{"28033", "DeSoto", "MS", "Mississippi", "28", 184945, 34.8740, -89.9913, 478, true},
	{"28027", "Coahoma", "MS", "Mississippi", "28", 22124, 34.2260, -90.6032, 555, false},
	{"28011", "Bolivar", "MS", "Mississippi", "28", 30604, 33.7961, -90.8804, 876, false},
	{"28133", "Sunflower", "MS", "Mississippi", "28", 25110, 33.5541, -90.5760, 694, false},
	{"28055", "Issaquena", "MS", "Mississippi", "28", 1338, 32.7413, -90.9898, 413, false},
	{"28125", "Sharkey", "MS", "Mississippi", "28", 4321, 32.8798, -90.7822, 428, false},
	{"28019", "Choctaw", "MS", "Mississippi", "28", 8210, 33.3467, -89.2497, 419, false},
	{"28009", "Benton", "MS", "Mississippi", "28", 8026, 34.8158, -89.1871, 407, false},

	// Montana (30)
	{"30111", "Yellowstone", "MT", "Montana", "30", 164731, 45.7833, -108.5007, 2635, true},
	{"30063", "Missoula", "MT", "Montana", "30", 119600, 47.0660, -113.9940, 2593, false},
	{"30031", "Gallatin", "MT", "Montana", "30", 114434, 45.5589, -111.1817, 2506, false},
	{"30029", "Flathead", "MT", "Montana", "30", 103806, 48.2288, -114.0609, 5087, false},
	{"30041", "Hill", "MT", "Montana", "30", 16427, 48.6014, -109.9873, 2896, false},
	{"30071", "Phillips", "MT", "Montana", "30", 3949, 48.2619, -107.8990, 5140, false},
	{"30019", "Daniels", "MT", "Montana", "30", 1690, 48.7850, -105.5553, 1426, false},
	{"30109", "Wibaux", "MT", "Montana", "30", 969, 46.9713, -104.2153, 889, false},
	{"30033", "Garfield", "MT", "Montana", "30", 1104, 47.2668, -106.9921, 4668, false},
	{"30069", "Petroleum", "MT", "Montana", "30", 487, 47.1175, -108.2504, 1654, false},
}

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Christopher", "Karen", "Daniel",
	"Lisa", "Matthew", "Nancy", "Priya", "Raj", "Wei", "Min", "Carlos",
	"Maria", "Ahmed", "Fatima", "Yuki", "Hiroshi", "Anna", "Ivan", "Olga",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Wilson", "Anderson", "Thomas",
	"Taylor", "Moore", "Lee", "Perez", "Thompson", "White", "Harris",
	"Nguyen", "Patel", "Kim", "Chen", "Wang", "Singh", "Kumar", "Park",
	"Yamamoto", "Tanaka", "Petrov", "Ivanov", "Shah", "Gupta", "Das",
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	rng := rand.New(rand.NewSource(*seed))
	zips := generateZips(rng, counties)
	providers := generateProviders(rng, counties, zips)

	fmt.Printf("Plan: %d counties, %d zipcode areas, %d providers, %d specialties\n",
		len(counties), len(zips), len(providers), len(catalog.SpecialtyCodes()))

	if *dryRun {
		fmt.Println("Dry run complete. No changes made.")
		return
	}
	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	// Run migrations through the shared gorm setup, then do the bulk load
	// over database/sql for prepared-statement batches.
	db.Connect()
	catalog.Init()
	scores.Init()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sdb, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer sdb.Close()
	if err := sdb.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := sdb.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	if err := wipe(ctx, tx); err != nil {
		fatalf("wipe data: %v", err)
	}
	if err := insertSpecialties(ctx, tx); err != nil {
		fatalf("insert specialties: %v", err)
	}
	if err := insertCounties(ctx, tx, counties); err != nil {
		fatalf("insert counties: %v", err)
	}
	if err := insertZips(ctx, tx, zips); err != nil {
		fatalf("insert zipcodes: %v", err)
	}
	if err := insertProviders(ctx, tx, providers); err != nil {
		fatalf("insert providers: %v", err)
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Seed complete ✅")
}

// generateZips creates 3 to 8 zipcode areas per county, scattered around the
// county centroid with a population share of the county total.
func generateZips(rng *rand.Rand, cs []countyRow) []zipRow {
	zctaCounter := 10001
	var out []zipRow
	for _, c := range cs {
		n := 3 + rng.Intn(6)
		for i := 0; i < n; i++ {
			out = append(out, zipRow{
				ZCTA:       fmt.Sprintf("%05d", zctaCounter),
				CountyFIPS: c.FIPS,
				StateAbbr:  c.StateAbbr,
				Population: maxInt64(100, int64(float64(c.Population)/float64(n)*(0.5+rng.Float64()))),
				Lat:        c.Lat + (rng.Float64()-0.5)*0.2,
				Lon:        c.Lon + (rng.Float64()-0.5)*0.2,
			})
			zctaCounter++
		}
	}
	return out
}

// targetDensity picks a provider count per 100k population. Urban counties
// land at 50 to 80, rural CA/TX/NY at 25 to 50, rural Mississippi at 8 to 20,
// rural Montana at 3 to 12.
func targetDensity(rng *rand.Rand, c countyRow) float64 {
	switch {
	case c.Urban:
		return 50 + rng.Float64()*30
	case c.StateAbbr == "MS":
		return 8 + rng.Float64()*12
	case c.StateAbbr == "MT":
		return 3 + rng.Float64()*9
	default:
		return 25 + rng.Float64()*25
	}
}

func generateProviders(rng *rand.Rand, cs []countyRow, zips []zipRow) []providerRow {
	countyZips := make(map[string][]zipRow)
	for _, z := range zips {
		countyZips[z.CountyFIPS] = append(countyZips[z.CountyFIPS], z)
	}

	specialties := catalog.SpecialtyCodes()
	npiCounter := int64(1000000001)
	var out []providerRow

	for _, c := range cs {
		count := int(float64(c.Population) * targetDensity(rng, c) / 100000)
		if count < 1 {
			count = 1
		}
		if count > 80 {
			count = 80
		}
		zs := countyZips[c.FIPS]
		if len(zs) == 0 {
			continue
		}
		for i := 0; i < count; i++ {
			z := zs[rng.Intn(len(zs))]
			out = append(out, providerRow{
				NPI:       fmt.Sprintf("%d", npiCounter),
				Name:      firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
				Zip:       z.ZCTA,
				Lat:       z.Lat + (rng.Float64()-0.5)*0.06,
				Lon:       z.Lon + (rng.Float64()-0.5)*0.06,
				Specialty: pickSpecialty(rng, specialties),
			})
			npiCounter++
		}
	}
	return out
}

// pickSpecialty weights primary_care at 30 and everything else at 5, so
// roughly 30% of providers are primary care.
func pickSpecialty(rng *rand.Rand, codes []string) string {
	total := 0
	for _, code := range codes {
		total += weightFor(code)
	}
	n := rng.Intn(total)
	for _, code := range codes {
		n -= weightFor(code)
		if n < 0 {
			return code
		}
	}
	return codes[len(codes)-1]
}

func weightFor(code string) int {
	if code == "primary_care" {
		return 30
	}
	return 5
}

func wipe(ctx context.Context, tx *sql.Tx) error {
	tables := []string{
		"dearth.dearth_scores",
		"dearth.providers",
		"dearth.zipcodes",
		"dearth.counties",
		"dearth.specialties",
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("delete %s: %w", t, err)
		}
	}
	return nil
}

func insertSpecialties(ctx context.Context, tx *sql.Tx) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dearth.specialties (code, name) VALUES ($1, $2)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, code := range catalog.SpecialtyCodes() {
		if _, err := stmt.ExecContext(ctx, code, catalog.DisplayName(code)); err != nil {
			return fmt.Errorf("insert specialty %s: %w", code, err)
		}
	}
	return nil
}

func insertCounties(ctx context.Context, tx *sql.Tx, rows []countyRow) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dearth.counties
		   (fips, name, state_fips, state_abbr, state_name, population, lat, lon, land_area_sq_mi)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.FIPS, r.Name, r.StateFIPS, r.StateAbbr,
			r.StateName, r.Population, r.Lat, r.Lon, r.AreaSqMi); err != nil {
			return fmt.Errorf("insert county %s: %w", r.FIPS, err)
		}
	}
	fmt.Printf("Inserted %d counties\n", len(rows))
	return nil
}

func insertZips(ctx context.Context, tx *sql.Tx, rows []zipRow) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dearth.zipcodes (zcta, county_fips, state_abbr, population, lat, lon)
		 VALUES ($1,$2,$3,$4,$5,$6)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ZCTA, r.CountyFIPS, r.StateAbbr,
			r.Population, r.Lat, r.Lon); err != nil {
			return fmt.Errorf("insert zipcode %s: %w", r.ZCTA, err)
		}
	}
	fmt.Printf("Inserted %d zipcode areas\n", len(rows))
	return nil
}

func insertProviders(ctx context.Context, tx *sql.Tx, rows []providerRow) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dearth.providers (id, npi, name, zip, lat, lon, specialties, is_active, loaded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	now := time.Now().UTC()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, uuid.New(), r.NPI, r.Name, r.Zip,
			r.Lat, r.Lon, pq.StringArray{r.Specialty}, true, now); err != nil {
			return fmt.Errorf("insert provider %s: %w", r.NPI, err)
		}
	}
	fmt.Printf("Inserted %d providers\n", len(rows))
	return nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
