package evaluator

import (
	"database/sql"
	"fmt"

	"github.com/rafibayer/puffin/internal/object"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Host database extension: scripts hold connections as opaque numeric
// handles.
var (
	dbConnections = map[int64]*sql.DB{}
	nextDBHandle  int64
)

var dbBuiltins = map[string]*object.Builtin{
	"db_open":  funcDBOpen(),
	"db_query": funcDBQuery(),
	"db_exec":  funcDBExec(),
	"db_close": funcDBClose(),
}

// funcDBOpen opens a connection: db_open(driver, dsn). The driver is one
// of mysql, postgres or sqlite3. Returns a handle number.
func funcDBOpen() *object.Builtin {
	return &object.Builtin{
		Name: "db_open",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 2 {
				return nil, object.NewArgMismatch(2, len(args))
			}
			driver, err := asString(args[0])
			if err != nil {
				return nil, err
			}
			dsn, err := asString(args[1])
			if err != nil {
				return nil, err
			}

			db, err := sql.Open(driver, dsn)
			if err != nil {
				return nil, object.NewIOError(err)
			}
			if err := db.Ping(); err != nil {
				db.Close()
				return nil, object.NewIOError(err)
			}

			nextDBHandle++
			dbConnections[nextDBHandle] = db
			return &object.Num{Value: float64(nextDBHandle)}, nil
		},
	}
}

// funcDBQuery runs a row-returning statement:
// db_query(handle, sql, params...). Each row becomes a structure keyed
// by column name; the result is the array of rows.
func funcDBQuery() *object.Builtin {
	return &object.Builtin{
		Name: "db_query",
		Fn: func(args []object.Value) (object.Value, error) {
			db, query, params, err := unpackDBArgs(args)
			if err != nil {
				return nil, err
			}

			rows, err := db.Query(query, params...)
			if err != nil {
				return nil, object.NewIOError(err)
			}
			defer rows.Close()

			return renderRows(rows)
		},
	}
}

// funcDBExec runs a non-row statement: db_exec(handle, sql, params...).
// Returns a structure with rows_affected and last_insert_id.
func funcDBExec() *object.Builtin {
	return &object.Builtin{
		Name: "db_exec",
		Fn: func(args []object.Value) (object.Value, error) {
			db, query, params, err := unpackDBArgs(args)
			if err != nil {
				return nil, err
			}

			result, err := db.Exec(query, params...)
			if err != nil {
				return nil, object.NewIOError(err)
			}
			affected, _ := result.RowsAffected()
			lastID, _ := result.LastInsertId()

			return &object.Structure{Fields: map[string]object.Value{
				"rows_affected":  &object.Num{Value: float64(affected)},
				"last_insert_id": &object.Num{Value: float64(lastID)},
			}}, nil
		},
	}
}

func funcDBClose() *object.Builtin {
	return &object.Builtin{
		Name: "db_close",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 1 {
				return nil, object.NewArgMismatch(1, len(args))
			}
			handle, err := dbHandle(args[0])
			if err != nil {
				return nil, err
			}
			db, ok := dbConnections[handle]
			if !ok {
				return nil, object.NewIOErrorf("invalid database handle %d", handle)
			}
			delete(dbConnections, handle)
			if err := db.Close(); err != nil {
				return nil, object.NewIOError(err)
			}
			return object.NULL, nil
		},
	}
}

// unpackDBArgs validates the shared (handle, sql, params...) shape of
// db_query and db_exec.
func unpackDBArgs(args []object.Value) (*sql.DB, string, []any, error) {
	if len(args) < 2 {
		return nil, "", nil, object.NewArgMismatch(2, len(args))
	}
	handle, err := dbHandle(args[0])
	if err != nil {
		return nil, "", nil, err
	}
	db, ok := dbConnections[handle]
	if !ok {
		return nil, "", nil, object.NewIOErrorf("invalid database handle %d", handle)
	}
	query, err := asString(args[1])
	if err != nil {
		return nil, "", nil, err
	}

	params := make([]any, 0, len(args)-2)
	for _, arg := range args[2:] {
		switch arg := arg.(type) {
		case *object.Num:
			params = append(params, arg.Value)
		case *object.String:
			params = append(params, arg.Value)
		case *object.Null:
			params = append(params, nil)
		default:
			return nil, "", nil, object.NewUnexpectedType(arg)
		}
	}
	return db, query, params, nil
}

func dbHandle(v object.Value) (int64, error) {
	n, err := asNum(v)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func renderRows(rows *sql.Rows) (object.Value, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, object.NewIOError(err)
	}

	result := &object.Array{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, object.NewIOError(err)
		}

		row := &object.Structure{Fields: make(map[string]object.Value, len(columns))}
		for i, col := range columns {
			row.Fields[col] = columnValue(values[i])
		}
		result.Elements = append(result.Elements, row)
	}
	if err := rows.Err(); err != nil {
		return nil, object.NewIOError(err)
	}
	return result, nil
}

// columnValue maps a scanned column into the value model: numbers stay
// numbers, NULL becomes null, everything else becomes its string form.
func columnValue(v any) object.Value {
	switch v := v.(type) {
	case nil:
		return object.NULL
	case int64:
		return &object.Num{Value: float64(v)}
	case float64:
		return &object.Num{Value: v}
	case bool:
		if v {
			return &object.Num{Value: 1}
		}
		return &object.Num{Value: 0}
	case []byte:
		return &object.String{Value: string(v)}
	case string:
		return &object.String{Value: v}
	default:
		return &object.String{Value: fmt.Sprintf("%v", v)}
	}
}
