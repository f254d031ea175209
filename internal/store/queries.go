package store

// SQL query constants organized by entity.
// All SQL lives here — PostgresStore methods reference these constants.

// Product queries.
const (
	queryCreateProduct = `
		INSERT INTO products (url, name, current_price, active)
		VALUES (@url, @name, @current_price, @active)
		ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	queryGetProduct = `
		SELECT id, url, name, current_price, active, created_at, updated_at, last_check_at
		FROM products
		WHERE id = $1`

	queryGetProductByURL = `
		SELECT id, url, name, current_price, active, created_at, updated_at, last_check_at
		FROM products
		WHERE url = $1`

	queryListActiveProducts = `
		SELECT id, url, name, current_price, active, created_at, updated_at, last_check_at
		FROM products
		WHERE active
		ORDER BY created_at`

	querySetProductActive = `
		UPDATE products SET active = $2, updated_at = now() WHERE id = $1`

	querySelectPriceForUpdate = `
		SELECT current_price FROM products WHERE id = $1 FOR UPDATE`

	queryUpdateProductPrice = `
		UPDATE products
		SET current_price = $2, updated_at = now(), last_check_at = now()
		WHERE id = $1`

	queryTouchProduct = `
		UPDATE products SET last_check_at = now() WHERE id = $1`
)

// Price history queries.
const (
	queryInsertObservation = `
		INSERT INTO price_history (product_id, price) VALUES ($1, $2)`

	queryLowestObservedPrice = `
		SELECT MIN(price) FROM price_history WHERE product_id = $1`
)

// Alert queries.
const (
	queryCreateAlert = `
		INSERT INTO alerts (
			product_id, chat_id, alert_type,
			threshold_price, percentage_threshold, active
		) VALUES (
			@product_id, @chat_id, @alert_type,
			@threshold_price, @percentage_threshold, @active
		)
		RETURNING id, created_at`

	queryListActiveAlerts = `
		SELECT id, product_id, chat_id, alert_type, threshold_price, percentage_threshold,
		       active, last_triggered_at, created_at
		FROM alerts
		WHERE active AND product_id = $1
		ORDER BY created_at`

	queryMarkAlertTriggered = `
		UPDATE alerts SET last_triggered_at = now() WHERE id = $1`
)
