// Package testutil 整合測試共用的 Postgres / Redis 連線與測資建立。
// 連不到測試 DB 或 Redis 時，DB 與 Redis 會讓該測試 Skip 而不是失敗。
package testutil

import (
	"context"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"airport-booking/config"
	"airport-booking/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func Setup() (*pgxpool.Pool, *redis.Client, func(), error) {
	cfg := config.LoadTestConfig()

	testDB, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize test database: %v", err)
	}
	log.Println("Test database connected successfully")

	testRdb, cleanupRedis, err := SetupRedisOnly()
	if err != nil {
		testDB.Close()
		return nil, nil, nil, err
	}
	log.Println("Test redis connected successfully")

	cleanup := func() {
		testDB.Close()
		cleanupRedis()
	}
	return testDB, testRdb, cleanup, nil
}

// SetupRedisOnly 僅初始化 Redis，用於只依賴 Redis 的測試（如 queue、idempotency）
func SetupRedisOnly() (*redis.Client, func(), error) {
	cfg := config.LoadTestConfig()
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %v", err)
	}
	return rdb, func() { rdb.Close() }, nil
}

var (
	dbOnce sync.Once
	dbPool *pgxpool.Pool
	dbErr  error

	redisOnce   sync.Once
	redisClient *redis.Client
	redisErr    error
)

// DB 回傳同一個 package 內共用的測試連線池，並清空所有資料表
func DB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbOnce.Do(func() {
		cfg := config.LoadTestConfig()
		dbPool, dbErr = database.InitDatabase(&cfg.Database)
	})
	if dbErr != nil {
		t.Skipf("test database unavailable: %v", dbErr)
	}
	Truncate(t, dbPool)
	return dbPool
}

// Redis 回傳共用的測試 Redis client，並清空測試用的 DB
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	redisOnce.Do(func() {
		redisClient, _, redisErr = SetupRedisOnly()
	})
	if redisErr != nil {
		t.Skipf("test redis unavailable: %v", redisErr)
	}
	if err := redisClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}
	return redisClient
}

// Truncate 清空所有測試資料，保留 schema
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE tickets, orders, flights, routes, airports, airplanes, airplane_types, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

func CreateUser(t *testing.T, pool *pgxpool.Pool, name, email string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`, name, email,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return id
}

func CreateAirplane(t *testing.T, pool *pgxpool.Pool, name string, rows, seatsInRow int) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(),
		`INSERT INTO airplanes (name, rows, seats_in_row) VALUES ($1, $2, $3) RETURNING id`,
		name, rows, seatsInRow,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test airplane: %v", err)
	}
	return id
}

func createAirport(t *testing.T, pool *pgxpool.Pool, code string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO airports (code, name) VALUES ($1, $1)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, code,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test airport: %v", err)
	}
	return id
}

// CreateRoute 以機場代碼建立航線，機場不存在時一併建立
func CreateRoute(t *testing.T, pool *pgxpool.Pool, source, destination string, distance int) int {
	t.Helper()
	src := createAirport(t, pool, source)
	dst := createAirport(t, pool, destination)

	var id int
	err := pool.QueryRow(context.Background(),
		`INSERT INTO routes (source_id, destination_id, distance) VALUES ($1, $2, $3) RETURNING id`,
		src, dst, distance,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test route: %v", err)
	}
	return id
}

func CreateFlight(t *testing.T, pool *pgxpool.Pool, routeID, airplaneID int, departure time.Time, duration time.Duration) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO flights (route_id, airplane_id, departure_time, arrival_time)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		routeID, airplaneID, departure, departure.Add(duration),
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test flight: %v", err)
	}
	return id
}

// Fixture 一個使用者與一班 rows x seatsInRow 的航班
type Fixture struct {
	UserID     int
	AirplaneID int
	RouteID    int
	FlightID   int
}

func SeedFlight(t *testing.T, pool *pgxpool.Pool, rows, seatsInRow int) Fixture {
	t.Helper()
	f := Fixture{
		UserID:     CreateUser(t, pool, "Test User", "test@example.com"),
		AirplaneID: CreateAirplane(t, pool, "Plane X", rows, seatsInRow),
		RouteID:    CreateRoute(t, pool, "TPE", "NRT", 2180),
	}
	f.FlightID = CreateFlight(t, pool, f.RouteID, f.AirplaneID,
		time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC), 3*time.Hour)
	return f
}
