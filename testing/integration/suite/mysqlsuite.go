package suite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	driverSql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Tables created by the sql stores, dropped when a suite is torn down
const dropTables = "DROP TABLE IF EXISTS saga_instance, processed_events;"

// MysqlSuite starts a MySQL container once per suite. MYSQL_CONNECTION points the suite at an existing server instead.
type MysqlSuite struct {
	suite.Suite
	*sync.Mutex
	ctx         context.Context
	dbConn      *sql.DB
	dbContainer *mysql.MySQLContainer
}

type dbCredentials struct {
	dbName   string
	user     string
	password string
}

func (t *MysqlSuite) SetupSuite() {
	t.Mutex = &sync.Mutex{}
	t.Mutex.Lock()
	defer t.Mutex.Unlock()

	t.ctx = context.Background()
	t.disableLogging()

	connectionStr := os.Getenv("MYSQL_CONNECTION")
	if connectionStr == "" {
		connectionStr = t.startContainer()
	}

	var err error
	t.dbConn, err = sql.Open("mysql", connectionStr)
	t.Require().NoError(err)

	ctx, cancel := context.WithTimeout(t.ctx, time.Second*30)
	defer cancel()

	require.Eventually(t.T(), func() bool {
		return t.dbConn.PingContext(ctx) == nil
	}, time.Second*30, time.Millisecond*500)
}

func (t *MysqlSuite) startContainer() string {
	dbCreds := &dbCredentials{
		dbName:   "enrollsaga",
		user:     "enrollsaga",
		password: "enrollsaga",
	}

	dbContainer, err := mysql.Run(t.ctx,
		"mysql:8.0",
		mysql.WithDatabase(dbCreds.dbName),
		mysql.WithUsername(dbCreds.user),
		mysql.WithPassword(dbCreds.password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("/usr/sbin/mysqld: ready for connections").
				WithOccurrence(1).
				WithStartupTimeout(60*time.Second)),
	)
	t.Require().NoError(err)
	t.dbContainer = dbContainer

	dbHost, err := dbContainer.Host(t.ctx)
	t.Require().NoError(err)
	dbPort, err := dbContainer.MappedPort(t.ctx, "3306")
	t.Require().NoError(err)

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8&parseTime=True", dbCreds.user, dbCreds.password, dbHost, dbPort.Int(), dbCreds.dbName)
}

func (t *MysqlSuite) Connection() *sql.DB {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	return t.dbConn
}

func (t *MysqlSuite) TearDownSuite() {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()

	_, err := t.dbConn.Exec(dropTables)
	require.NoError(t.T(), err)
	require.NoError(t.T(), t.dbConn.Close())

	if t.dbContainer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	t.Require().NoError(t.dbContainer.Terminate(ctx))
}

func (t *MysqlSuite) disableLogging() {
	require.NoError(t.T(), driverSql.SetLogger(NopLogger{}))
}

type NopLogger struct {
}

func (l NopLogger) Print(v ...interface{}) {}
